// Package template renders the files cpaneldns writes for users from
// embedded Go templates.
//
// The credentials template produces the INI file read by the credentials
// package:
//
//	content, err := template.RenderCredentials(template.CredentialsData{
//	    URL:      "https://cpanel.example.com:2083",
//	    Username: "user",
//	    Token:    "ABCDEF0123456789",
//	})
//
// Values with surrounding whitespace or a leading quote are wrapped in
// backticks so they survive parsing unchanged.
package template
