package domain

import "time"

// Estados de una corrida de simulación.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// SimulationRun es el registro persistente de una corrida.
type SimulationRun struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	SurveyID      string     `json:"survey_id"`
	SegmentIDs    []string   `json:"segment_ids"`
	RequestedSize int        `json:"requested_size"`
	Seed          uint64     `json:"seed"`
	Status        RunStatus  `json:"status"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// SegmentCount compara el objetivo de asignación contra lo generado.
type SegmentCount struct {
	Target    int `json:"target"`
	Generated int `json:"generated"`
}

// RunMetadata hace observable el resultado parcial de una corrida: tamaño
// pedido vs. generado vs. respuestas exitosas, sin mirar logs.
type RunMetadata struct {
	RequestedSize       int                     `json:"requested_size"`
	TotalGenerated      int                     `json:"total_generated"`
	TotalResponses      int                     `json:"total_responses"`
	SuccessfulResponses int                     `json:"successful_responses"`
	FailedResponses     int                     `json:"failed_responses"`
	SegmentBreakdown    map[string]SegmentCount `json:"segment_breakdown"`
	DataSourcesUsed     int                     `json:"data_sources_used"`
	Seed                uint64                  `json:"seed"`
	GenerationTimeMs    int64                   `json:"generation_time_ms"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// SimulationResult es el payload final de la corrida, serializable directo a
// JSON para los renderers externos (CSV/HTML/PDF).
type SimulationResult struct {
	Personas           []Persona          `json:"personas"`
	Responses          []Response         `json:"responses"`
	DistributionReport DistributionReport `json:"distribution_report"`
	ConfidenceReport   ConfidenceReport   `json:"confidence_report"`
	Insights           StudyInsights      `json:"insights"`
	Metadata           RunMetadata        `json:"metadata"`
}
