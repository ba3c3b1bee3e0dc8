//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/agentstation/shelfsync --repository.default-branch master --repository.path /

package shelfsync
