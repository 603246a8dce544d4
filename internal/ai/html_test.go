package ai

import "testing"

func TestExtractText_DropsBoilerplate(t *testing.T) {
	page := `<!doctype html>
<html>
<head>
  <title>E-7 Visa Guide</title>
  <meta name="description" content="meta text">
  <style>body { color: red }</style>
  <script>var tracking = "script text";</script>
</head>
<body>
  <header>Site header</header>
  <nav><a href="/">Home</a></nav>
  <main>
    <h1>E-7 Visa</h1>
    <p>Requires a   sponsoring
       employer.</p>
  </main>
  <noscript>Enable JS</noscript>
  <footer>Copyright</footer>
</body>
</html>`

	got := ExtractText(page)
	want := "E-7 Visa Guide E-7 Visa Requires a sponsoring employer."
	if got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestExtractText_PlainText(t *testing.T) {
	if got := ExtractText("just   some\ntext"); got != "just some text" {
		t.Errorf("ExtractText = %q", got)
	}
}
