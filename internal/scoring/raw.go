// Package scoring implementa el pipeline numerico del IPIP-50: puntaje
// bruto con items invertidos, estandarizacion contra normas, bandas de
// interpretacion y prediccion de outcomes ponderada por correlaciones.
//
// Todas las funciones son puras; el paquete no guarda estado mutable.
package scoring

import (
	"errors"
	"fmt"

	"bigfive-api/internal/domain"
)

const (
	MinResponse     = 1
	MaxResponse     = 5
	NeutralResponse = 3
)

// ErrInvalidResponseValue se devuelve para respuestas fuera de 1..5.
var ErrInvalidResponseValue = errors.New("invalid response value")

// InvalidResponseError identifica la respuesta rechazada.
type InvalidResponseError struct {
	QuestionID int
	Value      int
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response value for question %d: expected %d-%d, got %d",
		e.QuestionID, MinResponse, MaxResponse, e.Value)
}

func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrInvalidResponseValue
}

// ReverseScore invierte un item con clave negativa (1<->5, 2<->4, 3<->3).
func ReverseScore(value int) int {
	return MaxResponse + 1 - value
}

// ValidResponse indica si el valor esta en la escala Likert.
func ValidResponse(value int) bool {
	return value >= MinResponse && value <= MaxResponse
}

// RawScore suma los items del rasgo. Una respuesta ausente cuenta como 3.
func RawScore(responses domain.ResponseSet, keys domain.TraitKeys) (int, error) {
	total := 0
	for _, id := range keys.Positive {
		v, err := responseValue(responses, id)
		if err != nil {
			return 0, err
		}
		total += v
	}
	for _, id := range keys.Negative {
		v, err := responseValue(responses, id)
		if err != nil {
			return 0, err
		}
		total += ReverseScore(v)
	}
	return total, nil
}

func responseValue(responses domain.ResponseSet, id int) (int, error) {
	v, ok := responses[id]
	if !ok {
		return NeutralResponse, nil
	}
	if !ValidResponse(v) {
		return 0, &InvalidResponseError{QuestionID: id, Value: v}
	}
	return v, nil
}
