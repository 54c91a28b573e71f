package domain

import "time"

// Address is a Brazilian-style delivery address.
type Address struct {
	Street       string   `json:"street"`
	Number       string   `json:"number"`
	Complement   string   `json:"complement,omitempty"`
	Neighborhood string   `json:"neighborhood"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// User is the authenticated customer profile.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CPF       string    `json:"cpf,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave as is".
type ProfileUpdate struct {
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	CPF       *string  `json:"cpf,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

// RegisterRequest is the sign-up payload forwarded upstream.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// Login is the upstream authentication response: a credential plus the
// profile it belongs to.
type Login struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthResult is the structured outcome handed back to the app for sign-in
// and sign-up. Failures carry the upstream's human-readable message; they are
// not errors at the transport level.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}
