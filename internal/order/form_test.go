package order

import (
	"bytes"
	"mime/multipart"
	"testing"

	"crm-integrator/internal/crm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	key  string
	name string
	data []byte
}

func buildForm(t *testing.T, fields map[string]string, files []formFile) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.key, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form
}

func TestParseFormVehiclesOrderedByIndex(t *testing.T) {
	mf := buildForm(t, map[string]string{
		"firstName":              "Иван",
		"lastName":               "Петров",
		"email":                  "ivan@example.kz",
		"vehicles[2][plate]":     "c333cc",
		"vehicles[2][type]":      "truck",
		"vehicles[0][plate]":     "a111aa",
		"vehicles[0][startDate]": "2025-03-07",
		"vehicles[0][period]":    "15d",
		"vehicles[5][plate]":     "f555ff",
	}, nil)

	f, err := ParseForm(mf)
	require.NoError(t, err)

	require.Len(t, f.Vehicles, 3)
	assert.Equal(t, []int{0, 2, 5}, []int{f.Vehicles[0].Index, f.Vehicles[1].Index, f.Vehicles[2].Index})

	// номера приводятся к верхнему регистру
	assert.Equal(t, "A111AA", f.Vehicles[0].Plate)
	assert.Equal(t, "C333CC", f.Vehicles[1].Plate)
	assert.Equal(t, "truck", f.Vehicles[1].Type)
	assert.Equal(t, "2025-03-07", f.Vehicles[0].StartDate)
}

func TestParseFormAttachments(t *testing.T) {
	payload := []byte("not really a jpeg")
	mf := buildForm(t, map[string]string{
		"vehicles[0][plate]": "A111AA",
	}, []formFile{
		{key: "vehicles[0][techPassportFiles]", name: "scan.jpg", data: payload},
		{key: "vehicles[0][techPassportFiles]", name: "scan2.jpg", data: []byte("second")},
	})

	f, err := ParseForm(mf)
	require.NoError(t, err)

	require.Len(t, f.Vehicles, 1)
	require.Len(t, f.Vehicles[0].Files, 2)
	assert.Equal(t, "scan.jpg", f.Vehicles[0].Files[0].Name)
	assert.Equal(t, payload, f.Vehicles[0].Files[0].Data)
}

func TestParseFormCompanyFlag(t *testing.T) {
	for _, raw := range []string{"true", "1", "on"} {
		mf := buildForm(t, map[string]string{"isCompany": raw}, nil)
		f, err := ParseForm(mf)
		require.NoError(t, err)
		assert.True(t, f.IsCompany, "isCompany=%q", raw)
	}

	mf := buildForm(t, map[string]string{"isCompany": "false"}, nil)
	f, err := ParseForm(mf)
	require.NoError(t, err)
	assert.False(t, f.IsCompany)
}

func TestValidate(t *testing.T) {
	osagoProduct, _ := crm.ProductByCode("osago")
	greencardProduct, _ := crm.ProductByCode("greencard")

	valid := func() *Form {
		return &Form{
			Product:   greencardProduct,
			FirstName: "Иван",
			LastName:  "Петров",
			Email:     "ivan@example.kz",
			Vehicles:  []crm.Vehicle{{Index: 0, Plate: "A111AA"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Form)
		wantErr bool
	}{
		{"ok", func(f *Form) {}, false},
		{"missing first name", func(f *Form) { f.FirstName = "" }, true},
		{"missing last name", func(f *Form) { f.LastName = "" }, true},
		{"missing email", func(f *Form) { f.Email = "" }, true},
		{"zero vehicles", func(f *Form) { f.Vehicles = nil }, true},
		{"company without tax id", func(f *Form) { f.IsCompany = true }, true},
		{"company with tax id", func(f *Form) { f.IsCompany = true; f.CompanyTaxID = "123456789012" }, false},
		{"osago requires phone", func(f *Form) { f.Product = osagoProduct }, true},
		{"osago with phone", func(f *Form) { f.Product = osagoProduct; f.Phone = "+77001234567" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			err := f.Validate()
			if tt.wantErr {
				var ve *ValidationError
				require.Error(t, err)
				assert.ErrorAs(t, err, &ve)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
