package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("INKWELL_TEST_MODE") == "" {
			_ = os.Setenv("INKWELL_TEST_MODE", "1")
		}
	})
}
