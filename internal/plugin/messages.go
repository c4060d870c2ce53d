package plugin

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	msgInvalidPackage  = "%s is not a valid package file"
	msgStagingBusy     = "%s is already being installed"
	msgStagingFailed   = "Failed to prepare a staging directory: %v"
	msgExtractFailed   = "Failed to extract %s: %v"
	msgInvalidLayout   = "Invalid package structure: %v"
	msgVersionTooOld   = "%s v%s is already installed; v%s is not newer"
	msgUpgradeRequired = "%s v%s is installed; upgrade to v%s?"
	msgInstallFailed   = "Failed to install %s: %v"
	msgInstalled       = "Installed %s v%s"
	msgDirectoryTaken  = "Cannot install %s: %s already occupies %s"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	zh := language.SimplifiedChinese
	for key, text := range map[string]string{
		msgInvalidPackage:  "%s 不是有效的插件包",
		msgStagingBusy:     "%s 正在安装中",
		msgStagingFailed:   "无法创建临时目录: %v",
		msgExtractFailed:   "解压 %s 失败: %v",
		msgInvalidLayout:   "插件包结构无效: %v",
		msgVersionTooOld:   "已安装 %s v%s，v%s 不是更新的版本",
		msgUpgradeRequired: "已安装 %s v%s，是否升级到 v%s？",
		msgInstallFailed:   "安装 %s 失败: %v",
		msgInstalled:       "已安装 %s v%s",
		msgDirectoryTaken:  "无法安装 %s: %s 已占用 %s",
	} {
		_ = message.SetString(zh, key, text)
		_ = message.SetString(language.English, key, key)
	}
}

// newPrinter returns a printer for the closest supported language to lang.
func newPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := languageMatcher.Match(tag)
	return message.NewPrinter(supportedLanguages[idx])
}
