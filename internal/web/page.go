package web

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    {{if .Loading}}<meta http-equiv="refresh" content="1">{{end}}
    <title>Image to WEBP Converter</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            background: #f8f9fa;
            margin: 0;
            padding: 40px 20px;
        }
        .card {
            background: white;
            max-width: 600px;
            margin: 0 auto 30px;
            padding: 25px;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.15);
        }
        .card.wide { max-width: 900px; }
        h1 { text-align: center; margin-top: 0; }
        label { display: block; margin-bottom: 6px; }
        input[type=number], input[type=file] { width: 100%; margin-bottom: 15px; }
        .muted { color: #6c757d; font-size: 0.9em; }
        .spinner {
            width: 32px; height: 32px; margin: 15px auto 5px;
            border: 4px solid #0d6efd; border-right-color: transparent;
            border-radius: 50%; animation: spin 0.75s linear infinite;
        }
        @keyframes spin { to { transform: rotate(360deg); } }
        .center { text-align: center; }
        .button {
            padding: 8px 18px; border: none; border-radius: 6px; color: white;
            text-decoration: none; display: inline-block; cursor: pointer; font-size: 15px;
        }
        .primary { background: #0d6efd; }
        .success { background: #198754; }
        .secondary { background: #6c757d; }
        .button.disabled { opacity: 0.65; pointer-events: none; }
        .header { display: flex; justify-content: space-between; align-items: center; gap: 10px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(250px, 1fr)); gap: 20px; }
        .item { border: 1px solid #dee2e6; border-radius: 6px; overflow: hidden; display: flex; flex-direction: column; }
        .item img { width: 100%; display: block; }
        .item .body { padding: 12px; display: flex; flex-direction: column; flex: 1; }
        .item .name { white-space: nowrap; overflow: hidden; text-overflow: ellipsis; font-weight: 600; margin-bottom: 8px; }
        .item .button { margin-top: auto; text-align: center; }
        .failures { color: #dc3545; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Image to WEBP Converter</h1>

        <form action="/settings" method="post">
            <label for="maxWidth">Max Width (px)</label>
            <input type="number" id="maxWidth" name="maxWidth" min="1" value="{{.MaxWidth}}" onchange="this.form.submit()">
        </form>

        <form action="/upload" method="post" enctype="multipart/form-data">
            <input type="file" name="files" accept="image/png, image/jpeg" multiple onchange="this.form.submit()">
            {{if gt .FileCount 0}}<small class="muted">Number of files: {{.FileCount}}</small>{{end}}
            <noscript><button class="button primary" type="submit">Convert</button></noscript>
        </form>

        {{if .Loading}}
        <div class="center">
            <div class="spinner"></div>
            <p>Processing images...</p>
        </div>
        {{end}}

        {{if .Failures}}
        <div class="failures">
            <p>Some files could not be converted:</p>
            <ul>
                {{range .Failures}}<li>{{.Name}}: {{.Error}}</li>{{end}}
            </ul>
        </div>
        {{end}}
    </div>

    {{if .Images}}
    <div class="card wide">
        <div class="header">
            <h2>Converted WEBP Images:</h2>
            <div>
                <a id="zip" class="button success{{if .Zipping}} disabled{{end}}" href="/images.zip" onclick="return zipStarted(this)">{{if .Zipping}}Creating ZIP...{{else}}Download All as ZIP{{end}}</a>
                <form action="/clear" method="post" style="display:inline">
                    <button class="button secondary" type="submit">Clear</button>
                </form>
            </div>
        </div>

        <div class="grid">
            {{range .Images}}
            <div class="item">
                <img src="{{.URL}}" alt="{{.Name}}">
                <div class="body">
                    <div class="name" title="{{.Name}}">{{.Name}}</div>
                    <small class="muted">{{.Width}}x{{.Height}}, {{.Size}} bytes</small>
                    <a class="button primary" href="{{.URL}}?download=1" download="{{.Name}}">Download</a>
                </div>
            </div>
            {{end}}
        </div>
    </div>
    {{end}}

    <script>
        // The archive is built while the download request runs; poll until the server is done.
        function watchZip(a) {
            var poll = setInterval(function () {
                fetch("/state").then(function (r) { return r.json(); }).then(function (s) {
                    if (!s.zipping) {
                        clearInterval(poll);
                        a.classList.remove("disabled");
                        a.textContent = "Download All as ZIP";
                    }
                });
            }, 500);
        }
        function zipStarted(a) {
            if (a.classList.contains("disabled")) {
                return false;
            }
            a.classList.add("disabled");
            a.textContent = "Creating ZIP...";
            watchZip(a);
            return true;
        }
        {{if .Zipping}}watchZip(document.getElementById("zip"));{{end}}
    </script>
</body>
</html>
`
