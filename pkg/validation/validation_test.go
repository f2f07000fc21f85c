package validation

import (
	"testing"

	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	NIT    string  `json:"nit" validate:"required,max=9,digits"`
	Nombre string  `json:"nombre" validate:"required,max=5"`
	Correo *string `json:"correo_electronico" validate:"omitempty,email"`
	Nivel  *int    `json:"nivel_exito" validate:"omitempty,gte=0,lte=100"`
}

func TestStructCollectsEveryField(t *testing.T) {
	bad := "no-es-correo"
	nivel := 120
	errs := Struct(sample{NIT: "12A", Nombre: "demasiado largo", Correo: &bad, Nivel: &nivel})

	assert.Equal(t, []string{"correo_electronico", "nit", "nivel_exito", "nombre"}, errs.Fields())
	assert.Equal(t, []string{"solo se permiten dígitos"}, errs["nit"])
	assert.Equal(t, []string{"debe tener como máximo 5 caracteres"}, errs["nombre"])
	assert.Equal(t, []string{"debe ser menor o igual a 100"}, errs["nivel_exito"])
}

func TestStructPasses(t *testing.T) {
	errs := Struct(sample{NIT: "123456789", Nombre: "Ana"})
	assert.True(t, errs.Empty())
	assert.NoError(t, errs.Err(""))
}

func TestErrProducesValidationError(t *testing.T) {
	errs := Errors{}
	errs.Add("clientes", "lista vacía")
	errs.Addf("orden_visita", "repetido: %d", 2)

	err := errs.Err("datos inválidos")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "datos inválidos", typed.Message())
	details := typed.Details().(map[string]any)
	assert.Equal(t, []string{"repetido: 2"}, details["orden_visita"])
}

func TestMergeAndDigits(t *testing.T) {
	a := Errors{"x": {"uno"}}
	a.Merge(Errors{"x": {"dos"}, "y": {"tres"}})
	assert.Equal(t, []string{"uno", "dos"}, a["x"])
	assert.True(t, IsDigits("0123"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("12 3"))
}
