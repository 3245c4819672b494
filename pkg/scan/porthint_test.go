package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortHintsFromScripts(t *testing.T) {
	dir := createTestProject(t, map[string]string{
		"package.json": `{"scripts": {"dev": "vite --port 5200"}}`,
	})

	assert.Equal(t, []int{5200}, PortHints(dir))
}

func TestPortHintsFromEnvFile(t *testing.T) {
	dir := createTestProject(t, map[string]string{
		".env": "PORT=4100\nNODE_ENV=development\n",
	})

	assert.Equal(t, []int{4100}, PortHints(dir))
}

func TestPortHintsFromViteConfig(t *testing.T) {
	dir := createTestProject(t, map[string]string{
		"vite.config.ts": "export default { server: { port: 5321 } }",
	})

	assert.Equal(t, []int{5321}, PortHints(dir))
}

func TestPortHintsDeduplicated(t *testing.T) {
	dir := createTestProject(t, map[string]string{
		"package.json": `{"scripts": {"dev": "next dev -p 3100"}}`,
		".env":         "PORT=3100\n",
	})

	assert.Equal(t, []int{3100}, PortHints(dir))
}

func TestPortHintsEmpty(t *testing.T) {
	dir := createTestProject(t, map[string]string{
		"package.json": `{"scripts": {"dev": "vite"}}`,
	})

	assert.Empty(t, PortHints(dir))
}
