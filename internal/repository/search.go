package repository

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// nameFilter returns a scope matching search as a case-insensitive substring
// of any of columns. An empty search matches everything.
func nameFilter(columns []string, search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(search) + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			conds[i] = c + " ILIKE ?"
			args[i] = pattern
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}
