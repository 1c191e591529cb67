package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_AllTemplates(t *testing.T) {
	data := map[string]any{
		"AppName":     "Civic",
		"Name":        "Ayu",
		"ReportID":    float64(7),
		"ReportTitle": "Broken streetlight",
		"From":        "PENDING",
		"To":          "IN_PROCESS",
		"Author":      "Admin",
		"Message":     "Crew dispatched",
		"Link":        "https://example.test/user/report/7",
		"ExpiresIn":   "24h0m0s",
	}
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			subject, text, html, err := Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.NotContains(t, subject, "\n")
			assert.Contains(t, text, "Ayu")
			assert.Contains(t, html, "Ayu")
		})
	}
}

func TestRender_StatusChanged(t *testing.T) {
	subject, text, _, err := Render(StatusChanged, map[string]any{
		"ReportID":    float64(7),
		"ReportTitle": "Pothole",
		"From":        "PENDING",
		"To":          "IN_PROCESS",
		"Link":        "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "Civic Report: report #7 is now In Process", subject)
	assert.Contains(t, text, "from Pending to In Process")
	assert.Contains(t, text, "Hello there")
}

func TestRender_EscapesHTML(t *testing.T) {
	_, _, html, err := Render(ReportResponse, map[string]any{"Message": "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_Unknown(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		"PENDING":    "Pending",
		"IN_PROCESS": "In Process",
		"RESOLVED":   "Resolved",
	}
	for in, want := range cases {
		assert.Equal(t, want, statusLabel(in))
	}
}
