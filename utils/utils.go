package utils

import (
	"strconv"
	"strings"
)

// Str2int returns 0 if str is not a number.
func Str2int(str string) int {
	i, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0
	}
	return i
}

// SplitCSV splits a comma separated list, dropping empty items.
func SplitCSV(str string) (items []string) {
	for _, item := range strings.Split(str, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return
}
