// internal/workers/application/register-application/models.go
package registerapplication

type Input struct {
	Name          string `json:"name"`
	ApplicationID string `json:"applicationId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"` // RFC 3339, defaults to now
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Name          string `json:"name"`
	CreatedAt     string `json:"createdAt"`
	Status        string `json:"status"`
}

const StatusRegistered = "registered"

// Process variables other than these are allowed and ignored.
const inputSchema = `{
	"type": "object",
	"properties": {
		"name":          {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
		"applicationId": {"type": "string", "minLength": 1, "maxLength": 64},
		"createdAt":     {"type": "string", "format": "date-time"}
	},
	"required": ["name"]
}`
