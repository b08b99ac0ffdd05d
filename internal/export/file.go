package export

import (
	"fmt"
	"io"
	"os"
)

func toFile(path, kind string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s file: %w", kind, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s file: %w", kind, err)
	}
	return nil
}
