package content

import (
	"fmt"

	"github.com/raine/vinscripted/internal/listing"
)

// =============================================================================
// Notifications
// =============================================================================

const (
	MsgFilled           = "Annonce remplie avec succès !"
	MsgCopiedFallback   = "Champ description non trouvé. Texte copié !"
	MsgAnalysisError    = "Erreur lors de l'analyse"
	MsgConnectionError  = "Erreur de connexion. Réessayez."
	MsgConvertingImages = "Conversion des images..."
	MsgAnalyzing        = "Analyse en cours..."
)

// =============================================================================
// Button labels
// =============================================================================

type labels struct {
	generate   string
	analyzing  string
	addPhotos  string
	photoCount func(n int) string
}

func plural(n int, one, many string) string {
	if n > 1 {
		return many
	}
	return one
}

var buttonLabels = map[listing.Language]labels{
	listing.French: {
		generate:  "Generer la description",
		analyzing: "Analyse en cours...",
		addPhotos: "Ajoutez d'abord des photos",
		photoCount: func(n int) string {
			return fmt.Sprintf("Generer (%d %s)", n, plural(n, "photo", "photos"))
		},
	},
	listing.English: {
		generate:  "Generate description",
		analyzing: "Analyzing...",
		addPhotos: "Add photos first",
		photoCount: func(n int) string {
			return fmt.Sprintf("Generate (%d %s)", n, plural(n, "photo", "photos"))
		},
	},
	listing.German: {
		generate:  "Beschreibung generieren",
		analyzing: "Analyse lauft...",
		addPhotos: "Zuerst Fotos hinzufugen",
		photoCount: func(n int) string {
			return fmt.Sprintf("Generieren (%d %s)", n, plural(n, "Foto", "Fotos"))
		},
	},
	listing.Spanish: {
		generate:  "Generar descripcion",
		analyzing: "Analizando...",
		addPhotos: "Anade fotos primero",
		photoCount: func(n int) string {
			return fmt.Sprintf("Generar (%d %s)", n, plural(n, "foto", "fotos"))
		},
	},
	listing.Italian: {
		generate:  "Genera descrizione",
		analyzing: "Analisi in corso...",
		addPhotos: "Aggiungi prima le foto",
		photoCount: func(n int) string {
			return fmt.Sprintf("Genera (%d foto)", n)
		},
	},
	listing.Dutch: {
		generate:  "Beschrijving genereren",
		analyzing: "Bezig met analyseren...",
		addPhotos: "Voeg eerst foto's toe",
		photoCount: func(n int) string {
			return fmt.Sprintf("Genereren (%d %s)", n, plural(n, "foto", "foto's"))
		},
	},
	listing.Polish: {
		generate:  "Generuj opis",
		analyzing: "Analizowanie...",
		addPhotos: "Najpierw dodaj zdjecia",
		photoCount: func(n int) string {
			return fmt.Sprintf("Generuj (%d %s)", n, plural(n, "zdjecie", "zdjecia"))
		},
	},
	listing.Portuguese: {
		generate:  "Gerar descricao",
		analyzing: "Analisando...",
		addPhotos: "Adicione fotos primeiro",
		photoCount: func(n int) string {
			return fmt.Sprintf("Gerar (%d %s)", n, plural(n, "foto", "fotos"))
		},
	},
}

func labelsFor(lang listing.Language) labels {
	if l, ok := buttonLabels[lang]; ok {
		return l
	}
	return buttonLabels[listing.DefaultLanguage]
}
