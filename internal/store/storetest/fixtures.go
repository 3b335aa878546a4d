package storetest

import "billed/internal/models"

// FixtureEmail owns every fixture bill.
const FixtureEmail = "a@a"

// Bills returns four bills of FixtureEmail, deliberately not in date order.
func Bills() []models.Bill {
	return []models.Bill{
		{
			ID:           "47qAXb6fIm2zOKkLzMro",
			Email:        FixtureEmail,
			Type:         models.TypeHotel,
			Name:         "encore",
			Date:         "2004-04-04",
			Amount:       400,
			VAT:          "80",
			Pct:          20,
			Commentary:   "séminaire billed",
			FileURL:      "https://test.storage.tld/receipts/preview-facture-free-201801-pdf-1.jpg",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       models.StatusPending,
			CommentAdmin: "ok",
		},
		{
			ID:           "BeKy5Mo4jkmdfPGYpTxZ",
			Email:        FixtureEmail,
			Type:         models.TypeTransports,
			Name:         "test1",
			Date:         "2001-01-01",
			Amount:       100,
			Pct:          20,
			Commentary:   "plop",
			FileURL:      "https://test.storage.tld/receipts/1592770761.jpeg",
			FileName:     "1592770761.jpeg",
			Status:       models.StatusRefused,
			CommentAdmin: "en fait non",
		},
		{
			ID:           "UIUZtnPQvnbFnB0ozvJh",
			Email:        FixtureEmail,
			Type:         models.TypeOnline,
			Name:         "test3",
			Date:         "2003-03-03",
			Amount:       300,
			VAT:          "60",
			Pct:          20,
			FileURL:      "https://test.storage.tld/receipts/facture-client.png",
			FileName:     "facture-client.png",
			Status:       models.StatusAccepted,
			CommentAdmin: "bon bah d'accord",
		},
		{
			ID:           "qcCK3SzECmaZAGRrHjaC",
			Email:        FixtureEmail,
			Type:         models.TypeRestaurants,
			Name:         "test2",
			Date:         "2002-02-02",
			Amount:       200,
			VAT:          "40",
			Pct:          20,
			Commentary:   "test2",
			FileURL:      "https://test.storage.tld/receipts/preview-facture-free-201801-pdf-1.jpg",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       models.StatusRefused,
			CommentAdmin: "pas la bonne facture",
		},
	}
}
