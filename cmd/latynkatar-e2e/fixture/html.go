package fixture

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

var pageTemplate = pongo2.Must(pongo2.FromString(pageHTML))

func renderPage(convertTitle, clearTitle string) ([]byte, error) {
	if convertTitle == "" {
		convertTitle = latynkatar.DefaultConvertTitle
	}
	if clearTitle == "" {
		clearTitle = latynkatar.DefaultClearTitle
	}
	b, err := pageTemplate.ExecuteBytes(pongo2.Context{
		"title":         latynkatar.Title,
		"convert_title": convertTitle,
		"clear_title":   clearTitle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return b, nil
}

// pageHTML mirrors the controls of the real converter. Responses that
// arrive after a newer request was issued are dropped, so the output only
// ever shows the latest conversion.
const pageHTML = `<!DOCTYPE html>
<html lang="be">
<head>
    <meta charset="utf-8">
    <title>{{ title }}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; }
        textarea { width: 100%; height: 140px; font-size: 16px; }
        .row { margin: 12px 0; }
    </style>
</head>
<body>
    <h1>{{ title }}</h1>
    <div class="row"><textarea id="input" autofocus></textarea></div>
    <div class="row">
        <button id="convert" title="{{ convert_title }}">&#8595;</button>
        <button id="clear" title="{{ clear_title }}">&#10005;</button>
        <label><input type="checkbox" id="palatalization" checked> palatalization</label>
        <label><input type="radio" name="type" id="type-modern" value="modern" checked> modern</label>
        <label><input type="radio" name="type" id="type-old" value="old"> old</label>
    </div>
    <div class="row"><textarea id="output" readonly></textarea></div>
    <button id="clipboard-copy">copy</button>

    <script>
        const input = document.getElementById('input');
        const output = document.getElementById('output');
        const palatalization = document.getElementById('palatalization');
        const modern = document.getElementById('type-modern');
        const old = document.getElementById('type-old');
        let seq = 0;

        async function convert() {
            const mine = ++seq;
            const body = JSON.stringify({
                text: input.value,
                palatalization: palatalization.checked,
                graphics: old.checked ? 'old' : 'modern',
            });
            const resp = await fetch('/convert', { method: 'POST', body: body });
            const data = await resp.json();
            if (mine === seq) {
                output.value = data.text;
            }
        }

        function clearAll() {
            seq++;
            input.value = '';
            output.value = '';
            input.focus();
        }

        document.getElementById('convert').addEventListener('click', convert);
        document.getElementById('clear').addEventListener('click', clearAll);
        document.getElementById('clipboard-copy').addEventListener('click', () => {
            navigator.clipboard.writeText(output.value);
        });

        document.addEventListener('keydown', (e) => {
            if (!e.ctrlKey) {
                return;
            }
            switch (e.key) {
            case 'Delete':
                clearAll();
                break;
            case 'Enter':
                convert();
                break;
            case '1':
                modern.checked = true;
                break;
            case '2':
                old.checked = true;
                break;
            default:
                return;
            }
            e.preventDefault();
        });
    </script>
</body>
</html>
`
