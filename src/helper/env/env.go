package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var errUnset = errors.New("not set")

// get parses the variable with parse, falling back to the optional
// default when the variable is unset or unparseable.
func get[T any](name string, parse func(string) (T, error), defaultValue []T) (T, error) {
	value, err := parse(os.Getenv(name))
	if err != nil && len(defaultValue) > 0 {
		return defaultValue[0], nil
	}
	return value, err
}

func parseString(raw string) (string, error) {
	if raw == "" {
		return "", errUnset
	}
	return raw, nil
}

// GetString extracts a String value from the given environment variable
func GetString(name string, defaultValue ...string) string {
	value, _ := get(name, parseString, defaultValue)
	return value
}

// MustGetString extracts a String value from the given environment variable
// It panics if the environment variable is not present
func MustGetString(name string) string {
	value, err := get(name, parseString, nil)
	if err != nil {
		panic(fmt.Sprintf("%s can't be empty", name))
	}
	return value
}

// GetInt extracts an Int value from the given environment variable
func GetInt(name string, defaultValue ...int) int {
	value, _ := get(name, strconv.Atoi, defaultValue)
	return value
}

// MustGetInt extracts an Int value from the given environment variable
// It panics if the environment variable is not present or not an integer
func MustGetInt(name string) int {
	value, err := get(name, strconv.Atoi, nil)
	if err != nil {
		panic(fmt.Sprintf("%s must contain a int value!", name))
	}
	return value
}

// GetBool extracts a Bool value from the given environment variable
func GetBool(name string, defaultValue ...bool) bool {
	value, _ := get(name, strconv.ParseBool, defaultValue)
	return value
}

// MustGetBool extracts a Bool value from the given environment variable
// It panics if the environment variable is not present or not a boolean
func MustGetBool(name string) bool {
	value, err := get(name, strconv.ParseBool, nil)
	if err != nil {
		panic(fmt.Sprintf("%s must contain a boolean value! (true or false)", name))
	}
	return value
}
