package intel

import (
	"fmt"
	"strings"
)

const detectPriceListPrompt = `Sos un analizador experto en listas de precios enviadas por WhatsApp.

Tu tarea es detectar si el texto contiene al menos UN producto con su precio.

Si el texto NO contiene ningún producto con precio (por ejemplo, si es un saludo, una pregunta, una conversación general, o no menciona precios de productos),
devolvé exactamente:
{ "esLista": false }

Si el texto SÍ contiene al menos UN producto con su precio (pueden ser uno o muchos productos),
devolvé exactamente:
{ "esLista": true }

Ejemplos de esLista: true:
- "iphone 16 pro max 1500usd" -> { "esLista": true }
- "Samsung S24 $800" -> { "esLista": true }

Ejemplos de esLista: false:
- "Hola, buenos días!" -> { "esLista": false }
- "¿Tenés iPhone?" -> { "esLista": false }
- "Gracias por la info" -> { "esLista": false }

No devuelvas ningún otro texto ni explicación.

---
Texto a analizar:
`

const extractItemsPrompt = `Sos un analizador experto en listas de precios enviadas por WhatsApp.

Tu tarea es leer el texto recibido, identificar productos con precios y devolverlos ya normalizados, listos para embeddings.

Instrucciones de parsing:

Eliminar emojis, símbolos decorativos y separadores.

Identificar cada línea que contenga un producto + precio.

Si un producto incluye múltiples colores o variantes en la misma línea (ej: "azul/negro"):
crear un producto separado por cada variante, manteniendo el mismo precio.

Normalizar marca y modelo, por ejemplo:
"IP", "IPH", "iphn" -> iPhone
"SAM", "s23fe", "S22FE" -> Samsung S23 FE, Samsung S22 FE
"MOT", "moto" -> Motorola

Estandarizar estructura del nombre:
Marca Modelo Variante Capacidad Color Otros

Mantener variantes importantes: colores, capacidades (128GB, 256GB...), tamaños (44mm, 46mm...), ediciones (Pro, Max, Ultra, FE, SE).

Normalizar porcentajes de batería: "85% bat", "86/84" -> "85% batería", "84-86% batería".

Convertir cualquier símbolo de moneda a número limpio:
Ejemplos aceptados: $250, us$300, U$S 320, USD 270, 200 usd
-> devolver: "precio": 250

Reglas estrictas:

No agrupar productos que parezcan iguales.

No deduplicar. Cada línea con precio = un producto distinto.

No agregar texto adicional fuera del JSON.

Si no es una lista, devolvé { "esLista": false }.

Estructura EXACTA del JSON a devolver:
{
  "esLista": true,
  "productos": [
    {
      "nombre": "iPhone 13 128GB Blue 85% batería",
      "precio": 325
    }
  ]
}

Texto a analizar:

`

const normalizeNamePrompt = `Sos un experto en catalogación de productos de tecnología.
Tu única tarea es recibir un texto sucio de un producto y devolver su "Nombre Comercial Estándar".

REGLAS DE NORMALIZACIÓN:
1. Estructura: Marca Modelo Variante Capacidad Color (si existe) Estado/Batería (si aplica)
2. Marca: normaliza mayúsculas (ej: "iphone" -> "iPhone", "samsung" -> "Samsung").
3. Limpieza:
   - Elimina estados irrelevantes como: "nuevo", "sellado", "impecable".
   - EXCEPCIÓN: si indica "usado" o porcentaje de batería (ej: "88%", "batería 90%"), DEBES incluirlo al final.
   - Elimina precios y monedas.
   - Elimina emojis (pero conserva el texto del porcentaje de batería si está junto a uno).
   - Elimina palabras de venta: "oferta", "promo", "disponible", "entrando".
4. Capacidad: estandariza a mayúsculas (128gb -> 128GB, 1tb -> 1TB).

EJEMPLOS:
Input: "Celular Samsung s23 fe de 128 gigas color crema - nuevo caja sellada"
Output: Samsung S23 FE 128GB Cream

Input: "OFERTA IPHONE 13 NORMAL 128 BLUE 88%"
Output: iPhone 13 128GB Blue Usado 88%

Input: "MOTO G54 5G 256/8 VEGAN LEATHER USADO"
Output: Motorola Moto G54 5G 256GB Vegan Leather Usado

Input del usuario: `

const normalizeNameSuffix = `
Responde SOLAMENTE con el nombre normalizado final. Sin comillas ni texto extra.
IMPORTANTE:
- NO repitas el input.
- NO expliques tus cambios.
- Devuelve SOLAMENTE el string limpio final.`

func buildDetectPrompt(message string) string {
	return detectPriceListPrompt + message
}

func buildExtractPrompt(message string) string {
	return extractItemsPrompt + message
}

func buildNormalizePrompt(rawName string) string {
	return normalizeNamePrompt + rawName + normalizeNameSuffix
}

func buildConfirmIdentityPrompt(offered, candidate string) string {
	var b strings.Builder
	b.WriteString(`Actúa como un validador estricto de identidad de productos.
Tu trabajo es comparar el "Input del Usuario" con el "Candidato Encontrado" en la base de datos y decidir si son EXACTAMENTE el mismo producto comercial.

INPUT USUARIO: `)
	b.WriteString(offered)
	b.WriteString("\nCANDIDATO DB: ")
	b.WriteString(candidate)
	b.WriteString(`

REGLAS DE DECISIÓN ESTRICTAS:
1. Modelos diferentes = FALSE (ej: "iPhone 13" vs "iPhone 14" es FALSE).
2. Variantes diferentes = FALSE (ej: "Pro" vs "Pro Max" es FALSE).
3. Capacidades diferentes = FALSE (ej: "128GB" vs "256GB" es FALSE).
4. Colores: si el usuario NO especifica color, ignora el color del candidato (TRUE). Si el usuario SÍ especifica color y es distinto al candidato, es FALSE.

Ejemplos:
- User: "iPhone 13 128" | DB: "iPhone 13 128GB Blue" -> TRUE (es el mismo modelo y capacidad).
- User: "S23 Ultra" | DB: "S23 Plus" -> FALSE.
- User: "iPhone 15" | DB: "iPhone 15 Pro" -> FALSE.

Responde EXCLUSIVAMENTE con un JSON:
{ "esMismo": true }
o
{ "esMismo": false }`)
	return b.String()
}

func buildClassifyPrompt(productName string, price float64, categories []CategoryOption) string {
	var list strings.Builder
	for _, category := range categories {
		list.WriteString("- ")
		list.WriteString(category.Name)
		if category.Description != "" {
			list.WriteString(": ")
			list.WriteString(category.Description)
		}
		list.WriteByte('\n')
	}

	var b strings.Builder
	b.WriteString(`Sos un experto en hardware. Tu única tarea es clasificar el producto en una de las siguientes categorías exactas:

`)
	b.WriteString(list.String())
	b.WriteString(`
REGLAS CRÍTICAS:
1. Si el producto es un iPhone y su nombre menciona un porcentaje de batería (ej: "85%", "100%", "90% bat"), clasifícalo OBLIGATORIAMENTE como "iPhone Usado".
2. Si es un iPhone nuevo/sellado sin mención de porcentaje, usa la categoría "iPhone".
3. Lo mismo aplica para Samsung usado/nuevo.
4. Si el producto no encaja claramente en ninguna categoría, usa "Otros".

Producto: `)
	b.WriteString(productName)
	b.WriteString("\nPrecio: ")
	b.WriteString(fmt.Sprintf("%g", price))
	b.WriteString(`

Responde SOLAMENTE un JSON:
{ "categoria": "NombreCategoria" }`)
	return b.String()
}
