package groundwater

import (
	"os"
	"testing"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o644)
}

// testDataset builds an in-memory dataset without touching disk.
func testDataset(wells ...Well) *Dataset {
	return &Dataset{wells: wells}
}
