package config

// ConfigTemplate renders a Config back into toml, mainly used to generate
// starter config files for deployments and integration tests.
const ConfigTemplate = `db_driver = "{{ .DbDriver }}"
db_host = "{{ .DbHost }}"
db_port = {{ .DbPort }}
db_username = "{{ .DbUsername }}"
db_password = "{{ .DbPassword }}"
db_schema = "{{ .DbSchema }}"

[chains]{{ range $k, $v := .Chains }}
	[chains.{{ $k }}]
	chain = "{{ $k }}"
	block_time = {{ $v.BlockTime }}
	rpc_timeout_ms = {{ $v.RpcTimeoutMs }}
	rpc_urls = [{{ range $v.RpcUrls }}"{{ . }}", {{ end }}]
{{ end }}
`
