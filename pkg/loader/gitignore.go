package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreComment heads the block we append.
const gitignoreComment = "# ct local state (expanded rows, logs)"

// EnsureStateDirInGitignore ensures that the ct state directory (e.g. ".ct")
// is listed in the project's .gitignore so expansion state and logs stay out
// of the repository.
//
// The function is idempotent. It creates .gitignore if needed, skips the
// write when an equivalent pattern is present and preserves existing content.
func EnsureStateDirInGitignore(projectDir, stateDir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	name := strings.Trim(filepath.ToSlash(stateDir), "/")

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	alreadyPresent, err := isDirInGitignore(gitignorePath, name)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if alreadyPresent {
		return nil
	}

	return appendToGitignore(gitignorePath, name+"/")
}

// isDirInGitignore checks if dir is already covered by the .gitignore file.
func isDirInGitignore(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDirPattern(line, dir) {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// matchesDirPattern checks if a gitignore line covers dir: "dir", "dir/",
// "dir/*", "dir/**" or "dir/**/*", with or without a leading slash.
func matchesDirPattern(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == dir+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends a pattern to the .gitignore file, creating it if
// needed and keeping a blank line between our block and existing content.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) == 0 {
		toWrite = gitignoreComment + "\n" + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n" + gitignoreComment + "\n" + pattern + "\n"
	}

	_, err = file.WriteString(toWrite)
	return err
}
