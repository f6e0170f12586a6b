package constants

import "fmt"

// Role yang dikenal engine. Learner adalah "user"; reviewer banding dan
// intake nilai memakai "admin" atau "owner".
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess = "❌ Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

var AdminAndAbove = []string{
	RoleAdmin,
	RoleOwner,
}
