package ai

import (
	"fmt"
	"strings"

	"github.com/kdimtricp/triakustika/internal/models"
)

const (
	// PlaceholderImageURL stands in when the image model returns no image.
	PlaceholderImageURL = "https://picsum.photos/800/800"

	fallbackNarrative  = "Gagal menghasilkan narasi."
	fallbackCuratorial = "Visualisasi resonansi batin."
)

var markupStripper = strings.NewReplacer("*", "", "_", "")

// sanitize removes the emphasis markers the models add despite being asked not to.
func sanitize(text string) string {
	return strings.TrimSpace(markupStripper.Replace(text))
}

func imageStyle(buana models.Buana) string {
	if strings.Contains(string(buana), "Nyungcung") {
		return "ethereal cosmic nebula"
	}
	return "deep earthy volcanic textures"
}

func narrativePrompt(req NarrativeRequest) string {
	p := req.Profile
	f := req.Features
	c := req.Classification

	return fmt.Sprintf(`Identitas Juru Mamaos: %[1]s
Judul Lagu: %[2]s
Rumpaka (Lirik): "%[3]s"
Data Frekuensi Fisik: f1=%[4]dHz, f2=%[5]dHz, f3=%[6]dHz
Dominansi Buana: %[7]s
Kualitas Karakter: %[8]s

Tugas:
Berikan narasi pameran seni digital yang puitis dan mendalam (Bahasa Indonesia).
- Awali dengan sapaan hormat: "Sampurasun Bp/Ibu %[1]s".
- Jelaskan bagaimana getaran suara mereka mencerminkan koneksi antara mikrokosmos dan makrokosmos.
- Sisipkan satu paribasa Sunda kuno yang relevan dengan dominansi %[7]s.
- Tutup dengan: "Hasil Triakustika Anda: Dominan pada Buana %[7]s. Kualitas: %[8]s."
- Sapaan penutup: "Tetaplah bergetar dalam harmoni Tembang Sunda. Rahayu, Cag Rampes."

JANGAN gunakan tanda bintang (*) atau underscore (_).`,
		p.PerformerName, p.Title, p.Lyrics,
		f.F1, f.F2, f.F3,
		c.DominantBuana, c.Quality)
}

func curatorialPrompt(buana models.Buana, f3 int) string {
	return fmt.Sprintf("Berikan kuratorial singkat (2-3 kalimat) untuk karya 'Musonography' frekuensi %dHz dalam konteks Tembang Sunda (%s). Tanpa tanda bintang (*).", f3, buana)
}

func imagePrompt(buana models.Buana, f3 int) string {
	return fmt.Sprintf("Professional digital art 'Musonography'. Sundanese mystical frequency %dHz. Style: %s. High detail, 4k, cinematic. No text.", f3, imageStyle(buana))
}
