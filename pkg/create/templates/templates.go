package templates

// Manifest is the scaffolded project manifest. The lock file is generated
// from it by running `uv lock` inside the project directory.
const Manifest = `[project]
name = "{{.ProjectName}}"
version = "0.1.0"
requires-python = ">=3.12"
dependencies = [
    # TODO: Add your dependencies here, then run 'uv lock':
    # "fastapi>=0.110",
    # "streamlit",
]
`

// EntrypointScript starts the application processes. The image's default
// start command runs it through the dependency manager.
const EntrypointScript = `#!/bin/sh
#
# Default start command of the '{{.ProjectName}}' image.
#
# TODO: Start your application processes here, for example:
# uvicorn {{.ProjectName}}.api:app --host 0.0.0.0 --port 8000 &
# exec streamlit run {{.ProjectName}}/dashboard.py --server.port 8501

echo "{{.ProjectName}}: nothing to start yet, edit entrypoint.sh"
`

// IgnoreFile lists files excluded from the build context.
const IgnoreFile = `# Files matching these patterns never reach the image.
*.pyc
__pycache__/
.venv/
`

// Environment holds build-time environment variables baked into the image.
const Environment = `# NAME=VALUE pairs set as environment variables of the image.
# LOG_LEVEL=info
`
