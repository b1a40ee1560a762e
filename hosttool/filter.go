package hosttool

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// RunFilter runs argv[0] with argv[1:] as arguments, feeding blob on
// stdin and returning whatever it writes to stdout. Used to drive an
// external blob filter command.
func RunFilter(argv []string, blob []byte) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("hosttool: empty filter command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(blob)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.WithStack(&CommandError{
			Argv:   argv,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		})
	}
	return stdout.Bytes(), nil
}
