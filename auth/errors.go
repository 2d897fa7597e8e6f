package auth

type (
	// ValidationError means the caller left out required input
	ValidationError struct {
		Msg string
	}

	// ConflictError means a unique key is already taken
	ConflictError struct {
		Msg string
	}

	// AuthError covers bad credentials and missing, unknown or stale sessions
	AuthError struct {
		Msg string
	}
)

func (v ValidationError) Error() string { return v.Msg }

func (c ConflictError) Error() string { return c.Msg }

func (a AuthError) Error() string { return a.Msg }

var (
	errMissingSignupFields = ValidationError{Msg: "Missing required fields"}
	errMissingLoginFields  = ValidationError{Msg: "Email and password required"}
	errUserExists          = ConflictError{Msg: "User already exists"}
	errInvalidCredentials  = AuthError{Msg: "Invalid credentials"}
	errUnauthorized        = AuthError{Msg: "Unauthorized"}
	errInvalidSession      = AuthError{Msg: "Invalid session"}
)
