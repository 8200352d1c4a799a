package config

import "fmt"

func dsn(host string, port uint16, user, pass, name string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, pass, name)
}
