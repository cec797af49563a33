package config

// schemaSource constrains every resolved configuration.
const schemaSource = `
factors:              string & !=""
seeds:                string & !=""
output_dir:           string & !=""
output_root:          string
provision_categories: bool
runs_per_combination: int & >=1

header: {
	include_file: string & !=""
	file_path:    string
	root_path:    string
}

dispatch: {
	strategy:  "local" | "queue" | "none"
	simulator: string
	submitter: string
	queue:     string

	if strategy == "local" || strategy == "queue" {
		simulator: !=""
	}
	if strategy == "queue" {
		submitter: !=""
		queue:     !=""
	}
}

log_level: "debug" | "info" | "warn" | "error"
`
