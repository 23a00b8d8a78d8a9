package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/TFMV/wikiforce/models"
	"github.com/TFMV/wikiforce/provider"
)

func isMalformed(err error) bool {
	return errors.Is(err, models.ErrMalformedInput)
}

func isNotFound(err error) bool {
	return errors.Is(err, provider.ErrNotFound)
}

// handleIndex renders the query page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>WikiForce - Article Link Graphs</title>
  <style>
    body {
      font-family: 'Helvetica Neue', Arial, sans-serif;
      margin: 0;
      padding: 20px;
      background: #f5f5f5;
      color: #333;
    }
    .container {
      max-width: 1200px;
      margin: 0 auto;
      background: white;
      padding: 30px;
      border-radius: 8px;
      box-shadow: 0 2px 10px rgba(0,0,0,0.1);
    }
    h1 {
      color: #2a2a2a;
      margin-top: 0;
      border-bottom: 2px solid #eee;
      padding-bottom: 10px;
    }
    .query-section {
      margin: 20px 0;
      padding: 20px;
      background: #f9f9f9;
      border-radius: 4px;
    }
    .btn {
      background: #4285f4;
      color: white;
      border: none;
      padding: 10px 20px;
      border-radius: 4px;
      cursor: pointer;
      font-size: 16px;
    }
    .btn:hover {
      background: #3b78e7;
    }
    select, input {
      padding: 8px;
      font-size: 16px;
      border: 1px solid #ddd;
      border-radius: 4px;
      margin-right: 10px;
      min-width: 320px;
    }
  </style>
</head>
<body>
  <div class="container">
    <h1>WikiForce: Article Link Graphs</h1>

    <div class="query-section">
      <h2>Render an article</h2>
      <form action="/visualize" method="get">
        <input type="text" name="ref" placeholder="Article title or URL, e.g. Graph theory" required>
        <select name="format">
          <option value="svg">SVG</option>
          <option value="json">JSON</option>
        </select>
        <button type="submit" class="btn">Visualize</button>
      </form>
    </div>

    <div class="sample-section">
      <h2>Samples</h2>
      <a href="/visualize?ref=Force-directed+graph+drawing&format=svg" class="btn">Force-directed graph drawing</a>
      <a href="/visualize?ref=Go+(programming+language)&format=svg" class="btn">Go (programming language)</a>
    </div>
  </div>
</body>
</html>
`)
}
