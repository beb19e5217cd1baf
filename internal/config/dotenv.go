package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv は.envファイルが存在すれば環境変数として読み込む。
// 既に設定されている環境変数は上書きしない。
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
