package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func csvRows(out string) []string {
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	return lines[1:]
}

func TestListServersAll(t *testing.T) {
	out := listServersTool{}.Run("")

	assert.True(t, strings.HasPrefix(out, "Server Name,Database Type,Hostname\n"))
	assert.Len(t, csvRows(out), 5)
}

func TestListServersFiltersByTypeCaseInsensitive(t *testing.T) {
	for _, input := range []string{"MySQL", "mysql", "mysql servers", "servers MYSQL"} {
		rows := csvRows(listServersTool{}.Run(input))
		assert.Equal(t, []string{
			"sr-dbs01,MySQL,sr-dbs01.core.lennoxconsulting.com.au",
			"sr-dbs04,MySQL,sr-dbs04.lab.lennoxconsulting.com.au",
		}, rows, input)
	}
}

func TestListServersRejectsUnknownType(t *testing.T) {
	out := listServersTool{}.Run("oracle")

	assert.Contains(t, out, "The provided database type oracle is not valid.")
}

func TestListDatabasesByServer(t *testing.T) {
	rows := csvRows(listDatabasesTool{}.Run("sr-dbs01"))

	assert.Equal(t, []string{
		"taiga,MySQL,sr-dbs01",
		"homeassistant,MySQL,sr-dbs01",
		"wordpress,MySQL,sr-dbs01",
	}, rows)
}

func TestListDatabasesByHostname(t *testing.T) {
	rows := csvRows(listDatabasesTool{}.Run("What is on sr-dbs03.core.lennoxconsulting.com.au?"))

	assert.Equal(t, []string{"netbox,PostgreSQL,sr-dbs03"}, rows)
}

func TestListDatabasesByServerAndType(t *testing.T) {
	rows := csvRows(listDatabasesTool{}.Run("SR-DBS04 postgresql"))

	assert.Equal(t, []string{
		"netbox-test,PostgreSQL,sr-dbs04",
		"netbox-dev,PostgreSQL,sr-dbs04",
	}, rows)
}

func TestListDatabasesEmptyResultKeepsHeader(t *testing.T) {
	out := listDatabasesTool{}.Run("sr-dbs02")

	assert.Equal(t, "Database Name,Database Type,Database Server\n", out)
}

func TestListDatabasesUnmatchedInput(t *testing.T) {
	out := listDatabasesTool{}.Run("sr-web01")

	assert.Contains(t, out, `"sr-web01"`)
	assert.Contains(t, out, "sr-dbs01, sr-dbs02, sr-dbs03, sr-dbs04")
}

func TestHealthCheck(t *testing.T) {
	assert.Equal(t, "Healthy", healthCheckTool{}.Run("netbox"))
	assert.Equal(t, "Failed", healthCheckTool{}.Run("HomeAssistant"))
	assert.Equal(t, "Healthy", healthCheckTool{}.Run("check taiga please"))
	assert.Contains(t, healthCheckTool{}.Run(""), "database name is required")
	assert.Contains(t, healthCheckTool{}.Run("ghost"), "The database ghost is not known")
}

func TestDatabaseToolsAreDeterministic(t *testing.T) {
	for _, tool := range DatabaseProbe() {
		assert.Equal(t, tool.Run("sr-dbs01 netbox"), tool.Run("sr-dbs01 netbox"), tool.Name())
	}
}
