package sqlite

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_InitialisesOnce(t *testing.T) {
	const callers = 8

	var wg sync.WaitGroup
	infos := make([]EngineInfo, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			infos[i], errs[i] = Engine()
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, infos[0], infos[i])
	}
	assert.Equal(t, DriverName, infos[0].Driver)
	assert.True(t, versionAtLeast(infos[0].Version, minEngineVersion), "version %s", infos[0].Version)
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"3.27.0", true},
		{"3.27", true},
		{"3.46.1", true},
		{"4.0.0", true},
		{"3.26.9", false},
		{"2.99.99", false},
		{"3.x.0", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, versionAtLeast(tt.version, minEngineVersion))
		})
	}
}
