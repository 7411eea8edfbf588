package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()
	require.Equal(t, 4, c.Len())
	assert.Equal(t, []string{"Medicina General", "Pediatría", "Dermatología", "Ginecología"}, c.Names())
}

func TestLookupIgnoresAccentsAndCase(t *testing.T) {
	c := Default()

	svc, ok := c.Lookup("PEDIATRIA")
	require.True(t, ok)
	assert.Equal(t, "102", svc.StaffID)
	assert.Equal(t, "Dr. Carlos Ruiz", svc.Doctor)

	_, ok = c.Lookup("cardiología")
	assert.False(t, ok)
}

func TestMatchFindsServiceInsideSentence(t *testing.T) {
	c := Default()

	svc, ok := c.Match("agendar pediatría el 15/07")
	require.True(t, ok)
	assert.Equal(t, "Pediatría", svc.Name)

	svc, ok = c.Match("quiero medicina   general mañana")
	require.True(t, ok)
	assert.Equal(t, "Medicina General", svc.Name)

	_, ok = c.Match("agendar cardiología")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	c, err := Parse(`[{"name":"Nutrición","doctor":"Lic. Pérez","staff_id":"7"},{"name":"Odontología","doctor":"Dr. Sol","staff_id":"8"}]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nutrición", "Odontología"}, c.Names())

	_, err = Parse(`[]`)
	assert.Error(t, err)

	_, err = Parse(`[{"name":"A","staff_id":"1"},{"name":"a","staff_id":"2"}]`)
	assert.Error(t, err, "duplicate names must be rejected")

	_, err = Parse(`[{"name":"A"}]`)
	assert.Error(t, err, "staff id is required")

	_, err = Parse(`not json`)
	assert.Error(t, err)
}

func TestLoadDefaultsWhenBlank(t *testing.T) {
	c, err := Load("  ")
	require.NoError(t, err)
	assert.Equal(t, Default().Names(), c.Names())
}

func TestServicesReturnsCopy(t *testing.T) {
	c := Default()
	svcs := c.Services()
	svcs[0].Name = "changed"
	assert.Equal(t, "Medicina General", c.Names()[0])
}
