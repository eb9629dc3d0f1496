package proxy

// =============================================================================
// Validation messages
// =============================================================================

const (
	MsgNoImages         = "Aucune image fournie"
	MsgNoBackendURL     = "URL du backend non configurée"
	MsgInvalidImageURL  = "URL d'image invalide"
	MsgInvalidImageType = "Le fichier n'est pas une image"
	MsgImageTooLarge    = "Image trop volumineuse (max 5MB)"
)

// =============================================================================
// Transport messages
// =============================================================================

const (
	MsgTimeout         = "La requête a expiré. Veuillez réessayer."
	MsgConnection      = "Erreur de connexion. Réessayez."
	MsgInvalidResponse = "Réponse invalide du serveur"
	MsgHTTPError       = "Erreur HTTP %d: %s"
)
