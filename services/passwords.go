package services

import (
	"bufio"
	"os"
)

// LoadCommonPasswords reads a line-per-password file into a lookup set.
// Registration rejects any password found in it.
func LoadCommonPasswords(filePath string) (map[string]bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	passwords := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		passwords[scanner.Text()] = true
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return passwords, nil
}
