package simulation

import "errors"

// Taxonomía de errores del pipeline. Los errores de validación de entrada son
// fatales para la corrida; los demás se aíslan por ítem y nunca abortan un
// batch completo.
var (
	ErrInvalidInput            = errors.New("invalid simulation input")
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	ErrMissingReference        = errors.New("missing question or persona reference")
	ErrInsufficientData        = errors.New("insufficient data for analysis")
)
