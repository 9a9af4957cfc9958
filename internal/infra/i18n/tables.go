package i18n

// Message keys used outside the tables.
const (
	KeyClonePrefix    = "serviceSelector.clonePrefix"
	KeyURLExists      = "addServiceForm.urlExistsError"
	KeyRequiredFields = "addServiceForm.requiredError"
	KeyURLScheme      = "addServiceForm.urlSchemeError"
	KeyHTTPError      = "error.http"
	KeyNetworkError   = "error.network"
	KeyUnknownError   = "error.unknown"
	KeyInvalidURL     = "error.invalidUrl"
	KeyImportFailed   = "error.importFailed"
	KeyTranslating    = "results.translating"
	KeyDefaultSummary = "errorModal.defaultSummary"
)

var tables = map[string]map[string]string{
	"en": {
		"presets.s5p.name":              "Copernicus Sentinel-5P Hub",
		"presets.s5p.description":       "Access atmospheric data from the Sentinel-5P satellite, monitoring air quality, ozone, and more.",
		"presets.s3.name":               "Copernicus Sentinel-3 Hub",
		"presets.s3.description":        "Access Sentinel-3 data for ocean color, temperature, and land surface monitoring.",
		"presets.tripPin.name":          "OData TripPin Service",
		"presets.tripPin.description":   "A sample service with a trip management model, including people, airlines, and airports.",
		"presets.northwind.name":        "Northwind OData Service",
		"presets.northwind.description": "Classic database sample containing customers, orders, products, and suppliers.",
		KeyClonePrefix:                  "Copy of ",
		KeyURLExists:                    "A service with this URL already exists.",
		KeyRequiredFields:               "Service Name and URL are required.",
		KeyURLScheme:                    "URL must start with http or https.",
		KeyHTTPError:                    "HTTP error! Status: {status}",
		KeyNetworkError:                 "A network or validation error occurred.",
		KeyUnknownError:                 "An unknown error occurred.",
		KeyInvalidURL:                   "Please enter a valid OData Service URL starting with http or https.",
		KeyImportFailed:                 "Failed to import settings. The file may be invalid or corrupted.",
		KeyTranslating:                  "Translating...",
		KeyDefaultSummary:               "An unexpected error occurred.",
	},
	"fr": {
		"presets.s5p.name":              "Hub Copernicus Sentinel-5P",
		"presets.s5p.description":       "Accédez aux données atmosphériques du satellite Sentinel-5P, surveillant la qualité de l'air, l'ozone, et plus encore.",
		"presets.s3.name":               "Hub Copernicus Sentinel-3",
		"presets.s3.description":        "Accédez aux données de Sentinel-3 pour la couleur de l'océan, la température et la surveillance de la surface terrestre.",
		"presets.tripPin.name":          "Service OData TripPin",
		"presets.tripPin.description":   "Un service d'exemple avec un modèle de gestion de voyages, incluant des personnes, des compagnies aériennes et des aéroports.",
		"presets.northwind.name":        "Service OData Northwind",
		"presets.northwind.description": "Exemple de base de données classique contenant des clients, des commandes, des produits et des fournisseurs.",
		KeyClonePrefix:                  "Copie de ",
		KeyURLExists:                    "Un service avec cette URL existe déjà.",
		KeyRequiredFields:               "Le nom et l'URL du service sont obligatoires.",
		KeyURLScheme:                    "L'URL doit commencer par http ou https.",
		KeyHTTPError:                    "Erreur HTTP ! Statut : {status}",
		KeyNetworkError:                 "Une erreur de réseau ou de validation est survenue.",
		KeyUnknownError:                 "Une erreur inconnue est survenue.",
		KeyInvalidURL:                   "Veuillez saisir une URL de service OData valide commençant par http ou https.",
		KeyImportFailed:                 "Échec de l'importation des paramètres. Le fichier est peut-être invalide ou corrompu.",
	},
	"it": {
		"presets.s5p.name":              "Hub Copernicus Sentinel-5P",
		"presets.s5p.description":       "Accedi ai dati atmosferici del satellite Sentinel-5P, monitorando la qualità dell'aria, l'ozono e altro.",
		"presets.s3.name":               "Hub Copernicus Sentinel-3",
		"presets.s3.description":        "Accedi ai dati di Sentinel-3 per il colore degli oceani, la temperatura e il monitoraggio della superficie terrestre.",
		"presets.tripPin.name":          "Servizio OData TripPin",
		"presets.tripPin.description":   "Un servizio di esempio con un modello di gestione dei viaggi, che include persone, compagnie aeree e aeroporti.",
		"presets.northwind.name":        "Servizio OData Northwind",
		"presets.northwind.description": "Classico esempio di database contenente clienti, ordini, prodotti e fornitori.",
		KeyClonePrefix:                  "Copia di ",
		KeyURLExists:                    "Un servizio con questo URL esiste già.",
		KeyRequiredFields:               "Il nome e l'URL del servizio sono obbligatori.",
		KeyURLScheme:                    "L'URL deve iniziare con http o https.",
		KeyHTTPError:                    "Errore HTTP! Stato: {status}",
		KeyNetworkError:                 "Si è verificato un errore di rete o di convalida.",
		KeyUnknownError:                 "Si è verificato un errore sconosciuto.",
		KeyInvalidURL:                   "Inserisci un URL del servizio OData valido che inizi con http o https.",
		KeyImportFailed:                 "Importazione delle impostazioni non riuscita. Il file potrebbe essere non valido o corrotto.",
	},
	"zh": {
		"presets.s5p.name":              "哥白尼 Sentinel-5P 中心",
		"presets.s5p.description":       "访问 Sentinel-5P 卫星的大气数据，监测空气质量、臭氧等。",
		"presets.s3.name":               "哥白尼 Sentinel-3 中心",
		"presets.s3.description":        "访问 Sentinel-3 的海洋颜色、温度和陆地表面监测数据。",
		"presets.tripPin.name":          "OData TripPin 服务",
		"presets.tripPin.description":   "一个包含旅行管理模型的示例服务，包括人员、航空公司和机场。",
		"presets.northwind.name":        "OData Northwind 服务",
		"presets.northwind.description": "经典的数据库示例，包含客户、订单、产品和供应商。",
		KeyClonePrefix:                  "的副本",
		KeyURLExists:                    "具有此 URL 的服务已存在。",
		KeyRequiredFields:               "服务名称和 URL 为必填项。",
		KeyURLScheme:                    "URL 必须以 http 或 https 开头。",
		KeyHTTPError:                    "HTTP 错误！状态：{status}",
		KeyNetworkError:                 "发生网络或验证错误。",
		KeyUnknownError:                 "发生未知错误。",
		KeyInvalidURL:                   "请输入以 http 或 https 开头的有效 OData 服务 URL。",
		KeyImportFailed:                 "导入设置失败。文件可能无效或已损坏。",
	},
	"ja": {
		"presets.s5p.name":              "コペルニクス Sentinel-5P ハブ",
		"presets.s5p.description":       "Sentinel-5P衛星からの大気データにアクセスし、空気質、オゾンなどを監視します。",
		"presets.s3.name":               "コペルニクス Sentinel-3 ハブ",
		"presets.s3.description":        "海洋の色、温度、陸地の表面監視のためのSentinel-3データにアクセスします。",
		"presets.tripPin.name":          "OData TripPin サービス",
		"presets.tripPin.description":   "人物、航空会社、空港を含む旅行管理モデルのサンプルサービスです。",
		"presets.northwind.name":        "OData Northwind サービス",
		"presets.northwind.description": "顧客、注文、製品、サプライヤーを含むクラシックなデータベースサンプルです。",
		KeyClonePrefix:                  "のコピー",
		KeyURLExists:                    "このURLのサービスはすでに存在します。",
		KeyRequiredFields:               "サービス名とURLは必須です。",
		KeyURLScheme:                    "URLはhttpまたはhttpsで始まる必要があります。",
		KeyHTTPError:                    "HTTPエラー！ステータス: {status}",
		KeyNetworkError:                 "ネットワークまたは検証エラーが発生しました。",
		KeyUnknownError:                 "不明なエラーが発生しました。",
		KeyInvalidURL:                   "httpまたはhttpsで始まる有効なODataサービスURLを入力してください。",
		KeyImportFailed:                 "設定のインポートに失敗しました。ファイルが無効か破損している可能性があります。",
	},
}
