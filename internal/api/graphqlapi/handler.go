package graphqlapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
)

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler builds the POST /graphql gin.HandlerFunc. It runs behind the same
// JWT authentication stage as the REST routes (spec.md §6), so
// middleware.GetUserID/GetRoles/GetPermissions already see the principal by
// the time a resolver calls them via c.Request.Context().
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req graphqlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": "request body must be valid JSON"}}})
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        c.Request.Context(),
		})

		status := http.StatusOK
		if len(result.Errors) > 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, result)
	}
}

// Playground serves a minimal GraphiQL-style page for interactive queries
// against /graphql (spec.md §6: "/graphql/playground"). It is static markup
// with no server-side templating, so it carries no injection surface.
func Playground(endpoint string) gin.HandlerFunc {
	page := []byte(`<!DOCTYPE html>
<html>
<head>
  <title>xzepr graphql playground</title>
  <style>body{font-family:monospace;margin:2rem;}textarea{width:100%;height:200px;}pre{background:#f5f5f5;padding:1rem;overflow:auto;}</style>
</head>
<body>
  <h1>xzepr /graphql</h1>
  <p>POST a GraphQL query to <code>` + endpoint + `</code> with an <code>Authorization: Bearer &lt;token&gt;</code> header.</p>
  <textarea id="query">query { receivers(limit: 10) { id name type } }</textarea>
  <br><button onclick="run()">Run</button>
  <pre id="result"></pre>
  <script>
    async function run() {
      const token = window.localStorage.getItem('xzepr_token') || '';
      const res = await fetch('` + endpoint + `', {
        method: 'POST',
        headers: {
          'Content-Type': 'application/json',
          'Authorization': token ? 'Bearer ' + token : ''
        },
        body: JSON.stringify({query: document.getElementById('query').value})
      });
      document.getElementById('result').textContent = JSON.stringify(await res.json(), null, 2);
    }
  </script>
</body>
</html>`)

	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}
