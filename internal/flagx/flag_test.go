package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "postgres://db", "-a", ":8080"},
			allowed: []string{"-d"},
			want:    []string{"-d", "postgres://db"},
		},
		{
			name:    "equals form",
			args:    []string{"-s=sqlite", "-a", ":8080"},
			allowed: []string{"-s"},
			want:    []string{"-s=sqlite"},
		},
		{
			name:    "order preserved across several flags",
			args:    []string{"-a", ":8080", "-x", "1", "-s", "memory"},
			allowed: []string{"-a", "-s"},
			want:    []string{"-a", ":8080", "-s", "memory"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "count"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-a", ":9000"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "conf.json", ConfigPath([]string{"-a", ":8080", "-c", "conf.json"}))
	assert.Equal(t, "alt.json", ConfigPath([]string{"-config=alt.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-a", ":8080"}))
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"server", "-c", "/etc/waitlist.json"}
	assert.Equal(t, "/etc/waitlist.json", JsonConfigFlags())
}
