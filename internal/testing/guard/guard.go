package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ALDER_TEST_MODE") == "" {
			_ = os.Setenv("ALDER_TEST_MODE", "1")
		}
	})
}
