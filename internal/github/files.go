package github

import (
	"strings"
	"text/template"
)

const mitLicense = `MIT License

Copyright (c) 2025

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.`

const readme = `# {{ .RepoName }}

## Summary
This application was automatically generated based on project requirements.

## Setup
Open index.html in a browser or visit the GitHub Pages URL.

## Usage
Follow the on-screen instructions.

## Code Explanation
This is a single-page application built with HTML, CSS, and JavaScript.

## License
MIT License`

var readmeTmpl = template.Must(template.New("readme").Parse(readme))

func License() string {
	return mitLicense
}

func Readme(repoName string) (string, error) {
	var b strings.Builder
	if err := readmeTmpl.Execute(&b, struct{ RepoName string }{repoName}); err != nil {
		return "", err
	}
	return b.String(), nil
}
