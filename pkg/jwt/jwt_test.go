package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/pkg/jwt"
)

const secret = "s3cr3t"

func TestGenerateParse(t *testing.T) {
	tok, err := jwt.Generate(secret, "u-42", jwt.RoleOperator, "stockmaster-api", 5)
	require.NoError(t, err)

	uid, role, err := jwt.Parse(secret, "stockmaster-api", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-42", uid)
	assert.Equal(t, jwt.RoleOperator, role)
}

func TestParse_Rechazos(t *testing.T) {
	tok, err := jwt.Generate(secret, "u-42", jwt.RoleAdmin, "stockmaster-api", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro", "stockmaster-api", tok)
	assert.Error(t, err, "firma incorrecta")

	_, _, err = jwt.Parse(secret, "otro-emisor", tok)
	assert.Error(t, err, "emisor distinto")

	expired, err := jwt.Generate(secret, "u-42", jwt.RoleAdmin, "stockmaster-api", -1)
	require.NoError(t, err)
	_, _, err = jwt.Parse(secret, "", expired)
	assert.Error(t, err, "expirado")

	_, err = jwt.Generate(secret, "", jwt.RoleAdmin, "x", 5)
	assert.Error(t, err)
}
