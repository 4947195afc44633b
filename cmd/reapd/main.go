// Command reapd は共有 Reaper を動かし、運用向けエンドポイントを公開するデーモンです。
package main

func main() {
	Execute()
}
