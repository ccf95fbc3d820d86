package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/passbi/trackmaster/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	config := db.LoadConfigFromEnv()

	fmt.Println("🔗 Testing database connection...")
	fmt.Printf("   Host: %s:%d\n", config.Host, config.Port)
	fmt.Printf("   User: %s\n", config.User)
	fmt.Printf("   Database: %s\n\n", config.Database)

	conn, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		log.Fatalf("❌ Failed to create connection: %v\n", err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		log.Fatalf("❌ Failed to ping database: %v\n", err)
	}

	fmt.Println("✅ Connection successful!")
	fmt.Println()

	var pgVersion string
	err = conn.QueryRow("SELECT version()").Scan(&pgVersion)
	if err != nil {
		log.Printf("⚠️  Could not get PostgreSQL version: %v\n", err)
	} else {
		fmt.Printf("📊 PostgreSQL Version:\n   %s\n\n", pgVersion)
	}

	var records, stations int
	err = conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM station_edge),
			(SELECT COUNT(*) FROM (SELECT origin FROM station_edge UNION SELECT destination FROM station_edge) s)
	`).Scan(&records, &stations)
	if err != nil {
		fmt.Println("⚠️  station_edge table not available")
		fmt.Println("   → Run the importer to create the schema and load stations")
	} else {
		fmt.Printf("🚇 Network: %d records, %d stations\n\n", records, stations)
	}

	fmt.Println("📋 Checking existing tables...")
	rows, err := conn.Query(`
		SELECT tablename
		FROM pg_tables
		WHERE schemaname = 'public'
		ORDER BY tablename
	`)
	if err != nil {
		log.Printf("⚠️  Could not list tables: %v\n", err)
	} else {
		defer rows.Close()
		tableCount := 0
		for rows.Next() {
			var tablename string
			if err := rows.Scan(&tablename); err != nil {
				continue
			}
			fmt.Printf("   - %s\n", tablename)
			tableCount++
		}
		if tableCount == 0 {
			fmt.Println("   (no tables found)")
		}
		fmt.Printf("\n   Total: %d tables\n", tableCount)
	}

	fmt.Println()
	fmt.Println("✅ Connection check completed successfully!")
}
