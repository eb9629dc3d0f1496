package gateway

// =============================================================================
// Error responses
// =============================================================================

const (
	MsgForbiddenOrigin  = "Origine non autorisée"
	MsgUnauthorized     = "Clé API invalide ou manquante"
	MsgMethodNotAllowed = "Method not allowed"
	MsgRateLimited      = "Trop de requêtes. Réessayez dans 1 minute."
	MsgConfigError      = "Configuration error"
	MsgInvalidBody      = "Corps de requête invalide"
	MsgNoImages         = "Veuillez fournir au moins une image"
	MsgTooManyImages    = "Maximum %d images autorisées"
	MsgUnsupportedLang  = "Langue non supportée"
	MsgInvalidImage     = "Image %d %s"
)

// =============================================================================
// Machine-readable error codes
// =============================================================================

const (
	CodeForbiddenOrigin  = "forbidden_origin"
	CodeUnauthorized     = "unauthorized"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeRateLimited      = "rate_limited"
	CodeConfigError      = "config_error"
	CodeInvalidBody      = "invalid_body"
	CodeNoImages         = "no_images"
	CodeTooManyImages    = "too_many_images"
	CodeUnsupportedLang  = "unsupported_language"
	CodeInvalidImage     = "invalid_image"
	CodeAnalysisFailed   = "analysis_failed"
)
