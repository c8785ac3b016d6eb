package tools

import (
	"fmt"
	"strings"
	"unicode"
)

type databaseServer struct {
	Name     string
	Type     string
	Hostname string
}

type database struct {
	Name   string
	Type   string
	Server string
	Health string
}

// Static inventory until the probe talks to live systems.
var (
	databaseTypes = []string{"MySQL", "MongoDB", "PostgreSQL"}

	databaseServers = []databaseServer{
		{Name: "sr-dbs01", Type: "MySQL", Hostname: "sr-dbs01.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs02", Type: "MongoDB", Hostname: "sr-dbs02.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs03", Type: "PostgreSQL", Hostname: "sr-dbs03.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs04", Type: "MySQL", Hostname: "sr-dbs04.lab.lennoxconsulting.com.au"},
		{Name: "sr-dbs04", Type: "PostgreSQL", Hostname: "sr-dbs04.lab.lennoxconsulting.com.au"},
	}

	databases = []database{
		{Name: "netbox", Type: "PostgreSQL", Server: "sr-dbs03", Health: "Healthy"},
		{Name: "netbox-test", Type: "PostgreSQL", Server: "sr-dbs04", Health: "Healthy"},
		{Name: "netbox-dev", Type: "PostgreSQL", Server: "sr-dbs04", Health: "Failed"},
		{Name: "taiga", Type: "MySQL", Server: "sr-dbs01", Health: "Healthy"},
		{Name: "homeassistant", Type: "MySQL", Server: "sr-dbs01", Health: "Failed"},
		{Name: "wordpress", Type: "MySQL", Server: "sr-dbs01", Health: "Healthy"},
	}
)

// DatabaseProbe returns the database lookup tools.
func DatabaseProbe() []Tool {
	return []Tool{
		listServersTool{},
		listDatabasesTool{},
		healthCheckTool{},
	}
}

type listServersTool struct{}

func (listServersTool) Name() string {
	return "database_list_servers"
}

func (listServersTool) Description() string {
	return "Use this tool when you need to obtain a list of database server names. " +
		"If a database type is provided only servers linked to that type will be provided. " +
		`Accepted database types are ["MySQL", "MongoDB", "PostgreSQL"]. ` +
		"The list of servers will be returned as CSV data with the following columns: " +
		`["Server Name", "Database Type", "Hostname"]`
}

func (listServersTool) Run(input string) string {
	dbType, unknown := "", ""
	for _, token := range tokenize(input) {
		if t, ok := matchDatabaseType(token); ok {
			dbType = t
			break
		}
		if unknown == "" {
			unknown = token
		}
	}
	if dbType == "" && unknown != "" {
		return unknownDatabaseType(unknown)
	}

	var sb strings.Builder
	sb.WriteString("Server Name,Database Type,Hostname\n")
	for _, server := range databaseServers {
		if dbType == "" || dbType == server.Type {
			fmt.Fprintf(&sb, "%s,%s,%s\n", server.Name, server.Type, server.Hostname)
		}
	}
	return sb.String()
}

type listDatabasesTool struct{}

func (listDatabasesTool) Name() string {
	return "database_list_databases"
}

func (listDatabasesTool) Description() string {
	return "Use this tool when you need to obtain a list of databases. " +
		"If a database server name is provided then only databases associated with that database server will be provided. " +
		"If a database type is provided then only databases of that type will be provided. " +
		"Both may be given together, separated by a space. " +
		`Accepted database types are ["MySQL", "MongoDB", "PostgreSQL"]. ` +
		"The list of databases will be returned as CSV data with the following columns: " +
		`["Database Name", "Database Type", "Database Server"]`
}

func (listDatabasesTool) Run(input string) string {
	var dbType, server string
	var unmatched []string
	for _, token := range tokenize(input) {
		if t, ok := matchDatabaseType(token); ok {
			dbType = t
			continue
		}
		if s, ok := matchServer(token); ok {
			server = s
			continue
		}
		unmatched = append(unmatched, token)
	}
	if dbType == "" && server == "" && len(unmatched) > 0 {
		return fmt.Sprintf(
			"No database server or database type matched %q. Known servers are %s. %s",
			strings.Join(unmatched, " "), strings.Join(serverNames(), ", "), acceptedTypes(),
		)
	}

	var sb strings.Builder
	sb.WriteString("Database Name,Database Type,Database Server\n")
	for _, db := range databases {
		if (dbType == "" || dbType == db.Type) && (server == "" || server == db.Server) {
			fmt.Fprintf(&sb, "%s,%s,%s\n", db.Name, db.Type, db.Server)
		}
	}
	return sb.String()
}

type healthCheckTool struct{}

func (healthCheckTool) Name() string {
	return "database_health_check"
}

func (healthCheckTool) Description() string {
	return "Use this tool when you need to obtain the operational health of a database. " +
		"The name of a known database must be provided upon which the health check will be performed. " +
		`The result is either "Healthy" or "Failed".`
}

func (healthCheckTool) Run(input string) string {
	tokens := tokenize(input)
	if len(tokens) == 0 {
		return "A database name is required to perform a health check."
	}
	for _, token := range tokens {
		for _, db := range databases {
			if strings.EqualFold(token, db.Name) {
				return db.Health
			}
		}
	}
	names := make([]string, 0, len(databases))
	for _, db := range databases {
		names = append(names, db.Name)
	}
	return fmt.Sprintf("The database %s is not known. Known databases are %s.", strings.TrimSpace(input), strings.Join(names, ", "))
}

// tokenize splits free text into words, keeping host-name punctuation.
func tokenize(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.')
	})
}

func matchDatabaseType(token string) (string, bool) {
	for _, t := range databaseTypes {
		if strings.EqualFold(token, t) {
			return t, true
		}
	}
	return "", false
}

// matchServer accepts a server name or its host name.
func matchServer(token string) (string, bool) {
	for _, s := range databaseServers {
		if strings.EqualFold(token, s.Name) || strings.EqualFold(token, s.Hostname) {
			return s.Name, true
		}
	}
	return "", false
}

func serverNames() []string {
	seen := make(map[string]struct{}, len(databaseServers))
	names := make([]string, 0, len(databaseServers))
	for _, s := range databaseServers {
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		names = append(names, s.Name)
	}
	return names
}

func unknownDatabaseType(key string) string {
	return fmt.Sprintf("The provided database type %s is not valid. %s", key, acceptedTypes())
}

func acceptedTypes() string {
	return fmt.Sprintf("Accepted database types are %s.", strings.Join(databaseTypes, ", "))
}
