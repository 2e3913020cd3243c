package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"weightmate/internal/config"
)

func main() {
	fmt.Println("🔍 設定を確認しています...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env ファイルが見つかりません: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ 設定の検証に失敗しました:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ 設定は有効です！")
	fmt.Printf("📋 設定の詳細:\n")
	fmt.Printf("  - LINE Channel Secret: %s\n", maskToken(cfg.Line.ChannelSecret))
	fmt.Printf("  - LINE Access Token: %s\n", maskToken(cfg.Line.ChannelAccessToken))
	fmt.Printf("  - Spreadsheet ID: %s\n", cfg.Sheets.SpreadsheetID)
	fmt.Printf("  - Public Base URL: %s\n", cfg.Server.PublicBaseURL)
	fmt.Printf("  - Port: %s\n", cfg.Server.Port)
	fmt.Printf("  - Graph Dir: %s\n", cfg.Server.GraphDir)
	fmt.Printf("  - Graph Font: %s\n", orUnset(cfg.Server.GraphFontPath))
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<未設定>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "<未設定>"
	}
	return v
}
