package domain

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// RelevantSegmentWildcard marca una fuente aplicable a todos los segmentos.
const RelevantSegmentWildcard = "*"

// DataSource es material de investigación subido por el usuario (extracción de
// documentos fuera de este core) que enriquece personas y confianza.
type DataSource struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id,omitempty"`
	Type             string    `json:"type"`
	Name             string    `json:"name,omitempty"`
	RelevantSegments []string  `json:"relevant_segments,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	Insights         []string  `json:"insights,omitempty"`
	Quality          string    `json:"quality,omitempty"`
	Verified         bool      `json:"verified"`
	Conflicts        []string  `json:"conflicts,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AppliesTo reporta si la fuente declara relevancia para un segmento.
// Sin lista declarada o con wildcard aplica a todos.
func (d DataSource) AppliesTo(segmentID string) bool {
	if len(d.RelevantSegments) == 0 {
		return true
	}
	for _, s := range d.RelevantSegments {
		if s == segmentID || s == RelevantSegmentWildcard {
			return true
		}
	}
	return false
}

// InsightEmbedding es un insight individual con su embedding precalculado por
// el pipeline de ingesta. Permite búsqueda por similitud en el repositorio.
type InsightEmbedding struct {
	ID        uuid.UUID       `json:"id"`
	SourceID  string          `json:"source_id"`
	Insight   string          `json:"insight"`
	Embedding pgvector.Vector `json:"embedding"`
	CreatedAt time.Time       `json:"created_at"`
}
