package sensei

import "strings"

// Endpoint is a symbolic name for a backend resource path.
type Endpoint string

const (
	EndpointLogin             Endpoint = "login"
	EndpointRegister          Endpoint = "register"
	EndpointProjects          Endpoint = "projects"
	EndpointTestCases         Endpoint = "testcases"
	EndpointConnectors        Endpoint = "connectors"
	EndpointTechnologies      Endpoint = "technologies"
	EndpointValidateConnector Endpoint = "validateConnector"
	EndpointReports           Endpoint = "reports"
	EndpointGlobalReports     Endpoint = "globalReports"
	EndpointTestErrors        Endpoint = "testErrors"
	EndpointAPIKeys           Endpoint = "apiKeys"
	EndpointProfileUpload     Endpoint = "profileUpload"
)

// endpointPaths maps symbolic names to relative paths under the API prefix.
// The map is built once and never mutated.
var endpointPaths = map[Endpoint]string{
	EndpointLogin:             "/api/login/",
	EndpointRegister:          "/api/register/",
	EndpointProjects:          "/api/projects/",
	EndpointTestCases:         "/api/testcases/",
	EndpointConnectors:        "/api/chatbotconnectors/",
	EndpointTechnologies:      "/api/connector-technologies/",
	EndpointValidateConnector: "/api/validate-connector/",
	EndpointReports:           "/api/reports/",
	EndpointGlobalReports:     "/api/global-reports/",
	EndpointTestErrors:        "/api/test-errors/",
	EndpointAPIKeys:           "/api/api-keys/",
	EndpointProfileUpload:     "/api/profiles/upload/",
}

// url resolves an endpoint against the client base URL, appending optional
// path segments. Segments are expected to already be URL-safe (numeric ids).
func (c *Client) url(ep Endpoint, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(c.baseURL, "/"))
	b.WriteString(endpointPaths[ep])
	for _, s := range segments {
		b.WriteString(s)
		b.WriteString("/")
	}
	return b.String()
}
