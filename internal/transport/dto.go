// Package transport holds the request bodies of the HTTP API and their
// validation rules.
package transport

import (
	"time"
)

// Uploadable requests receive the names of stored images per form field.
type Uploadable interface {
	ApplyUploads(files map[string][]string)
}

func first(files map[string][]string, field string) (string, bool) {
	if v := files[field]; len(v) > 0 {
		return v[0], true
	}
	return "", false
}

type CreateCategoryRequest struct {
	Name  string `json:"name"  form:"name"  validate:"required,min=3,max=32"`
	Image string `json:"image" form:"image"`
}

func (r *CreateCategoryRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "image"); ok {
		r.Image = v
	}
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"  form:"name"  validate:"omitempty,min=3,max=32"`
	Image *string `json:"image" form:"image"`
}

func (r *UpdateCategoryRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "image"); ok {
		r.Image = &v
	}
}

type CreateSubCategoryRequest struct {
	Name       string `json:"name"       form:"name"       validate:"required,min=2,max=32"`
	CategoryID string `json:"categoryId" form:"categoryId" validate:"omitempty,uuid"`
}

type UpdateSubCategoryRequest struct {
	Name       *string `json:"name"       form:"name"       validate:"omitempty,min=2,max=32"`
	CategoryID *string `json:"categoryId" form:"categoryId" validate:"omitempty,uuid"`
}

type CreateBrandRequest struct {
	Name  string `json:"name"  form:"name"  validate:"required,min=2,max=32"`
	Image string `json:"image" form:"image"`
}

func (r *CreateBrandRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "image"); ok {
		r.Image = v
	}
}

type UpdateBrandRequest struct {
	Name  *string `json:"name"  form:"name"  validate:"omitempty,min=2,max=32"`
	Image *string `json:"image" form:"image"`
}

func (r *UpdateBrandRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "image"); ok {
		r.Image = &v
	}
}

type CreateProductRequest struct {
	Title              string   `json:"title"              form:"title"              validate:"required,min=3,max=100"`
	Description        string   `json:"description"        form:"description"        validate:"required,min=20,max=2000"`
	Quantity           int      `json:"quantity"           form:"quantity"           validate:"gte=0"`
	Sold               int      `json:"sold"               form:"sold"               validate:"gte=0"`
	Price              float64  `json:"price"              form:"price"              validate:"required,gt=0,lte=200000"`
	PriceAfterDiscount *float64 `json:"priceAfterDiscount" form:"priceAfterDiscount" validate:"omitempty,gt=0"`
	Colors             []string `json:"colors"             form:"colors"`
	ImageCover         string   `json:"imageCover"         form:"imageCover"         validate:"required"`
	Images             []string `json:"images"             form:"images"             validate:"max=5"`
	CategoryID         string   `json:"categoryId"         form:"categoryId"         validate:"required,uuid"`
	SubCategories      []string `json:"subcategories"      form:"subcategories"      validate:"omitempty,dive,uuid"`
	BrandID            *string  `json:"brandId"            form:"brandId"            validate:"omitempty,uuid"`
}

func (r *CreateProductRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "imageCover"); ok {
		r.ImageCover = v
	}
	if v := files["images"]; len(v) > 0 {
		r.Images = v
	}
}

type UpdateProductRequest struct {
	Title              *string   `json:"title"              form:"title"              validate:"omitempty,min=3,max=100"`
	Description        *string   `json:"description"        form:"description"        validate:"omitempty,min=20,max=2000"`
	Quantity           *int      `json:"quantity"           form:"quantity"           validate:"omitempty,gte=0"`
	Sold               *int      `json:"sold"               form:"sold"               validate:"omitempty,gte=0"`
	Price              *float64  `json:"price"              form:"price"              validate:"omitempty,gt=0,lte=200000"`
	PriceAfterDiscount *float64  `json:"priceAfterDiscount" form:"priceAfterDiscount" validate:"omitempty,gt=0"`
	Colors             *[]string `json:"colors"             form:"colors"`
	ImageCover         *string   `json:"imageCover"         form:"imageCover"`
	Images             *[]string `json:"images"             form:"images"             validate:"omitempty,max=5"`
	CategoryID         *string   `json:"categoryId"         form:"categoryId"         validate:"omitempty,uuid"`
	SubCategories      *[]string `json:"subcategories"      form:"subcategories"      validate:"omitempty,dive,uuid"`
	BrandID            *string   `json:"brandId"            form:"brandId"            validate:"omitempty,uuid"`
}

func (r *UpdateProductRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "imageCover"); ok {
		r.ImageCover = &v
	}
	if v := files["images"]; len(v) > 0 {
		r.Images = &v
	}
}

type CreateCouponRequest struct {
	Name     string    `json:"name"     validate:"required,min=3,max=50"`
	Expire   time.Time `json:"expire"   validate:"required"`
	Discount float64   `json:"discount" validate:"required,gt=0,lte=100"`
}

type UpdateCouponRequest struct {
	Name     *string    `json:"name"     validate:"omitempty,min=3,max=50"`
	Expire   *time.Time `json:"expire"`
	Discount *float64   `json:"discount" validate:"omitempty,gt=0,lte=100"`
}

type CreateReviewRequest struct {
	Title     string  `json:"title"     validate:"max=200"`
	Ratings   float64 `json:"ratings"   validate:"required,gte=1,lte=5"`
	ProductID string  `json:"productId" validate:"omitempty,uuid"`
}

type UpdateReviewRequest struct {
	Title   *string  `json:"title"   validate:"omitempty,max=200"`
	Ratings *float64 `json:"ratings" validate:"omitempty,gte=1,lte=5"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Color     string `json:"color"     validate:"max=32"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequest struct {
	Coupon string `json:"coupon" validate:"required"`
}

type ShippingAddress struct {
	Details    string `json:"details"    validate:"required,max=200"`
	Phone      string `json:"phone"      validate:"required,mobile"`
	City       string `json:"city"       validate:"required,max=64"`
	PostalCode string `json:"postalCode" validate:"required,len=5,numeric"`
}

// CashOrderRequest is the body of a cash order; the address is mandatory.
type CashOrderRequest struct {
	ShippingAddress *ShippingAddress `json:"shippingAddress" validate:"required"`
}

// OrderRequest carries an optional address forwarded to card checkout.
type OrderRequest struct {
	ShippingAddress *ShippingAddress `json:"shippingAddress"`
}

type SignupRequest struct {
	Name            string `json:"name"            validate:"required,min=3,max=64"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8,strongpassword" sanitize:"-"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" sanitize:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required" sanitize:"-"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetCodeRequest struct {
	ResetCode string `json:"resetCode" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=8,strongpassword" sanitize:"-"`
}

type CreateUserRequest struct {
	Name            string `json:"name"            form:"name"            validate:"required,min=3,max=64"`
	Email           string `json:"email"           form:"email"           validate:"required,email"`
	Phone           string `json:"phone"           form:"phone"           validate:"omitempty,mobile"`
	ProfileImg      string `json:"profileImg"      form:"profileImg"`
	Password        string `json:"password"        form:"password"        validate:"required,min=8,strongpassword" sanitize:"-"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required,eqfield=Password" sanitize:"-"`
	Role            string `json:"role"            form:"role"            validate:"omitempty,oneof=user admin manager"`
}

func (r *CreateUserRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "profileImg"); ok {
		r.ProfileImg = v
	}
}

// UpdateUserRequest never touches the password.
type UpdateUserRequest struct {
	Name       *string `json:"name"       form:"name"       validate:"omitempty,min=3,max=64"`
	Email      *string `json:"email"      form:"email"      validate:"omitempty,email"`
	Phone      *string `json:"phone"      form:"phone"      validate:"omitempty,mobile"`
	ProfileImg *string `json:"profileImg" form:"profileImg"`
	Role       *string `json:"role"       form:"role"       validate:"omitempty,oneof=user admin manager"`
}

func (r *UpdateUserRequest) ApplyUploads(files map[string][]string) {
	if v, ok := first(files, "profileImg"); ok {
		r.ProfileImg = &v
	}
}

type ChangePasswordRequest struct {
	Password        string `json:"password"        validate:"required,min=8,strongpassword" sanitize:"-"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" sanitize:"-"`
}

type ChangeMyPasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" sanitize:"-"`
	Password        string `json:"password"        validate:"required,min=8,strongpassword" sanitize:"-"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" sanitize:"-"`
}

type UpdateMeRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=3,max=64"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,mobile"`
}

type ActivateRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type WishlistRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

type AddressRequest struct {
	Alias      string `json:"alias"      validate:"required,min=3,max=32"`
	Details    string `json:"details"    validate:"required,max=200"`
	Phone      string `json:"phone"      validate:"required,mobile"`
	City       string `json:"city"       validate:"required,max=64"`
	PostalCode string `json:"postalCode" validate:"required,len=5,numeric"`
}
