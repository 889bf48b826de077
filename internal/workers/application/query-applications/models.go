// internal/workers/application/query-applications/models.go
package queryapplications

type Input struct {
	Name     string `json:"name"`
	OpenOnly bool   `json:"openOnly"`
}

type ApplicationView struct {
	ApplicationID string `json:"applicationId"`
	Name          string `json:"name"`
	CreatedAt     string `json:"createdAt"`
}

type Output struct {
	Name         string            `json:"name"`
	Applications []ApplicationView `json:"applications"`
	Count        int               `json:"count"`
	IsCustomer   bool              `json:"isCustomer"`
}

const inputSchema = `{
	"type": "object",
	"properties": {
		"name":     {"type": "string", "minLength": 1, "pattern": "\\S"},
		"openOnly": {"type": "boolean"}
	},
	"required": ["name"]
}`
