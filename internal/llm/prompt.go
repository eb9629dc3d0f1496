package llm

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/vinscripted/internal/listing"
)

var listingPrompt = strings.TrimSpace(dedent.Dedent(`
	Tu es un expert en vente sur Vinted. Analyse les images fournies et génère une annonce complète et attractive.

	RÈGLES IMPORTANTES :
	1. TITRE : Crée un titre optimisé pour le SEO (Marque + Type + Couleur + Taille/État). Sois précis.
	2. DESCRIPTION : Rédige une description DÉTAILLÉE et complète, structurée avec des sauts de ligne.
	   - Mentionne l'état précis (défauts, usure ou absence de défauts).
	   - Décris la coupe, le style, les motifs et les détails (boutons, fermeture, poches).
	   - Indique la matière et le ressenti (doux, léger, chaud...).
	   - Donne des conseils de style ou d'occasion (idéal pour l'été, pour une soirée...).
	3. TON : Chaleureux, honnête et vendeur.
	4. N'invente pas de marque si elle n'est pas visible.
	5. Ne mentionne pas le prix.

	LANGUE : %s

	FORMAT DE RÉPONSE (JSON strict, sans markdown) :
	{
	  "title": "Titre optimisé de l'annonce",
	  "description": "Description complète et structurée...",
	  "attributes": {
	    "category": "Type d'article détecté",
	    "condition": "État de l'article",
	    "color": "Couleur principale",
	    "size": "Taille si visible",
	    "brand": "Marque si visible",
	    "material": "Matière si identifiable"
	  },
	  "keywords": ["mot-clé1", "mot-clé2", "mot-clé3", "mot-clé4", "mot-clé5"]
	}

	N'inclus aucun texte avant ou après le JSON.
`))

// BuildPrompt returns the listing prompt for the given output language.
func BuildPrompt(language listing.Language) string {
	return fmt.Sprintf(listingPrompt, language.DisplayName())
}
